package sqlinline

const QSelectTemplatesByDomain = `--sql b2d90f14-6a3c-47e8-9d52-0c8b17f4a6e1
select storage_path, domain, coalesce(description, ''), coalesce(tags, '{}'::text[])
from poster_templates
where domain = $1::text
  and active
order by updated_at desc
limit $2::int;
`
